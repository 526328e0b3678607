package config

// Config is the full bot configuration, loaded from fcy.yaml with FCY_*
// environment overrides.
type Config struct {
	Bot         BotConfig         `koanf:"bot"`
	Alerts      AlertsConfig      `koanf:"alerts"`
	Guilds      GuildsConfig      `koanf:"guilds"`
	Classifiers ClassifiersConfig `koanf:"classifiers"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type BotConfig struct {
	Token string `koanf:"token"`
}

type AlertsConfig struct {
	// AutoAlerts gates the automatic ban-detection path. Off by default:
	// alerts are raised via the /alert command until the per-guild
	// classifiers have been vetted against real moderation traffic.
	AutoAlerts bool `koanf:"auto_alerts"`

	// SelectTimeoutSeconds bounds the wait for the origin-selection
	// dropdown before the alert is abandoned.
	SelectTimeoutSeconds int `koanf:"select_timeout_seconds"`

	// TestingUserIDs bypass the moderator-exclusion guard, so the bot can
	// be exercised against known test accounts.
	TestingUserIDs []string `koanf:"testing_user_ids"`

	// ProbeConcurrency caps the number of simultaneous presence checks
	// against monitored guilds.
	ProbeConcurrency int `koanf:"probe_concurrency"`
}

type GuildsConfig struct {
	Monitored []MonitoredGuildConfig `koanf:"monitored"`
	Alert     []AlertGuildConfig     `koanf:"alert"`
}

type MonitoredGuildConfig struct {
	ID         string `koanf:"id"`
	Name       string `koanf:"name"`
	Enabled    bool   `koanf:"enabled"`
	Testing    bool   `koanf:"testing"`
	Classifier string `koanf:"classifier"`
}

type AlertGuildConfig struct {
	ID            string            `koanf:"id"`
	Name          string            `koanf:"name"`
	Enabled       bool              `koanf:"enabled"`
	Testing       bool              `koanf:"testing"`
	ChannelID     string            `koanf:"channel_id"`
	GeneralRoleID string            `koanf:"general_role_id"`
	OriginRoles   map[string]string `koanf:"origin_roles"`
}

// ClassifiersConfig carries the tunables for the named ban classifiers.
// The classification rules themselves are configuration data, not code.
type ClassifiersConfig struct {
	RF1Permanent RF1PermanentConfig `koanf:"rf1_permanent"`
}

// RF1PermanentConfig configures the /r/formula1 permanent-ban rule: bans
// issued by the listed moderation bots with a temp-ban marker in the reason
// are not alerted.
type RF1PermanentConfig struct {
	ModerationBotIDs []string `koanf:"moderation_bot_ids"`
	TempBanMarkers   []string `koanf:"temp_ban_markers"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
	Path  string `koanf:"path"`
}

// DefaultConfig returns the compiled-in configuration, mirroring the
// production deployment: the motorsport guilds are configured but disabled,
// and the dev/testing guild is live in both roles.
func DefaultConfig() *Config {
	return &Config{
		Alerts: AlertsConfig{
			AutoAlerts:           false,
			SelectTimeoutSeconds: 120,
			TestingUserIDs:       []string{"1086293154304634910"},
			ProbeConcurrency:     4,
		},
		Guilds: GuildsConfig{
			Monitored: []MonitoredGuildConfig{
				{ID: "1079109375647555695", Name: "Lux's Dev/Testing Server", Enabled: true, Testing: true, Classifier: "always"},
				{ID: "177387572505346048", Name: "/r/formula1", Classifier: "placeholder"},
				{ID: "142082511902605313", Name: "Formula One", Classifier: "placeholder"},
				{ID: "877239953174691910", Name: "NASCAR", Classifier: "placeholder"},
				{ID: "271077595913781248", Name: "Left Turn Lounge", Classifier: "placeholder"},
				{ID: "1014269980960899173", Name: "Oracle Red Bull Racing", Classifier: "placeholder"},
				{ID: "897158147511316522", Name: "McLaren", Classifier: "placeholder"},
				{ID: "193548511126487040", Name: "/r/WEC", Classifier: "placeholder"},
				{ID: "878844647173132359", Name: "IMSA", Classifier: "placeholder"},
				{ID: "830080368089890887", Name: "Extreme E", Classifier: "placeholder"},
				{ID: "360079258980319232", Name: "/r/INDYCAR", Classifier: "placeholder"},
			},
			Alert: []AlertGuildConfig{
				{
					ID:            "1079109375647555695",
					Name:          "Lux's Dev/Testing Server",
					Enabled:       true,
					Testing:       true,
					ChannelID:     "1105555454605672448",
					GeneralRoleID: "1136730925481340968",
					OriginRoles: map[string]string{
						"1079109375647555695": "1136731212828901397",
						"177387572505346048":  "1143326383955783783",
					},
				},
				{
					ID:        "959541053915037697",
					Name:      "Staff of MS Discords",
					ChannelID: "960480902331383809",
					OriginRoles: map[string]string{
						"177387572505346048":  "959862354663850086",
						"142082511902605313":  "959542104302944327",
						"877239953174691910":  "959542131251380274",
						"271077595913781248":  "959543894704537630",
						"1014269980960899173": "1041018881214525561",
						"897158147511316522":  "953661058118197338",
						"193548511126487040":  "1118919138321104906",
						"878844647173132359":  "1129338140390346873",
						"830080368089890887":  "1133781212251553883",
						"360079258980319232":  "1112467709045788692",
					},
				},
			},
		},
		Classifiers: ClassifiersConfig{
			RF1Permanent: RF1PermanentConfig{
				ModerationBotIDs: []string{"424900962449358848", "886984180800577636"},
				TempBanMarkers:   []string{"10 day ban", "30 day ban"},
			},
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  "fcy.log",
		},
	}
}
