package announce

// Config holds announcement rendering settings.
type Config struct {
	// ProfileSemanticID is the semantic schema ID used to resolve actor
	// profiles.
	ProfileSemanticID string
	SoundEnabled      bool
	Variant           string
}

func DefaultConfig() *Config {
	return &Config{
		ProfileSemanticID: "world.concrnt.p",
		SoundEnabled:      true,
		Variant:           VariantInfo,
	}
}
