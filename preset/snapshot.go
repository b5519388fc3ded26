package preset

// Overrides holds user edits on top of a preset. Nil fields keep the
// preset value.
type Overrides struct {
	EQLow  *float64 `json:"eqLow,omitempty"`
	EQMid  *float64 `json:"eqMid,omitempty"`
	EQHigh *float64 `json:"eqHigh,omitempty"`

	LowFreqHz  *float64 `json:"lowFrequency,omitempty"`
	MidFreqHz  *float64 `json:"midFrequency,omitempty"`
	HighFreqHz *float64 `json:"highFrequency,omitempty"`
	MidQ       *float64 `json:"midQ,omitempty"`

	ThresholdDB    *float64 `json:"threshold,omitempty"`
	KneeDB         *float64 `json:"knee,omitempty"`
	Ratio          *float64 `json:"ratio,omitempty"`
	AttackSeconds  *float64 `json:"attack,omitempty"`
	ReleaseSeconds *float64 `json:"release,omitempty"`

	DeEsserFrequencyHz *float64 `json:"deEsserFrequency,omitempty"`
	DeEsserThresholdDB *float64 `json:"deEsserThreshold,omitempty"`

	Reverb     *float64 `json:"reverb,omitempty"`
	Delay      *float64 `json:"delay,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
}

// Snapshot is the serializable "current preset plus overrides" state handed
// to an external session store.
type Snapshot struct {
	PresetID  string    `json:"presetId"`
	Overrides Overrides `json:"overrides"`
}

// binding pairs an override slot with the config field it replaces.
type binding struct {
	override **float64
	value    *float64
}

func (o *Overrides) bindings(cfg *Config) []binding {
	return []binding{
		{&o.EQLow, &cfg.EQ.Low},
		{&o.EQMid, &cfg.EQ.Mid},
		{&o.EQHigh, &cfg.EQ.High},
		{&o.LowFreqHz, &cfg.EQ.LowFreqHz},
		{&o.MidFreqHz, &cfg.EQ.MidFreqHz},
		{&o.HighFreqHz, &cfg.EQ.HighFreqHz},
		{&o.MidQ, &cfg.EQ.MidQ},
		{&o.ThresholdDB, &cfg.Compressor.ThresholdDB},
		{&o.KneeDB, &cfg.Compressor.KneeDB},
		{&o.Ratio, &cfg.Compressor.Ratio},
		{&o.AttackSeconds, &cfg.Compressor.AttackSeconds},
		{&o.ReleaseSeconds, &cfg.Compressor.ReleaseSeconds},
		{&o.DeEsserFrequencyHz, &cfg.DeEsser.FrequencyHz},
		{&o.DeEsserThresholdDB, &cfg.DeEsser.ThresholdDB},
		{&o.Reverb, &cfg.Effects.Reverb},
		{&o.Delay, &cfg.Effects.Delay},
		{&o.Saturation, &cfg.Effects.Saturation},
	}
}

// Apply returns cfg with every non-nil override applied.
func (o Overrides) Apply(cfg Config) Config {
	for _, b := range o.bindings(&cfg) {
		if *b.override != nil {
			*b.value = **b.override
		}
	}

	return cfg
}

// Diff returns the overrides that turn base into cfg. Only fields whose
// values differ are set.
func Diff(base, cfg Config) Overrides {
	var o Overrides

	want := o.bindings(&cfg)
	for i, b := range o.bindings(&base) {
		if *b.value != *want[i].value {
			*b.override = Float(*want[i].value)
		}
	}

	return o
}

// NewSnapshot captures cfg as the catalog preset it was derived from plus
// the fields that differ from it.
func NewSnapshot(c *Catalog, cfg Config) Snapshot {
	return Snapshot{PresetID: cfg.ID, Overrides: Diff(c.Get(cfg.ID), cfg)}
}

// Resolve looks up the snapshot's preset, falling back to the catalog
// default for unknown ids, applies the overrides and validates the result.
func (s Snapshot) Resolve(c *Catalog) (Config, error) {
	cfg := s.Overrides.Apply(c.Get(s.PresetID))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Float returns a pointer to v, for building Overrides literals.
func Float(v float64) *float64 {
	return &v
}
