package config

type Config struct {
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`

	Fetch  Fetch  `yaml:"fetch"`
	Cache  Cache  `yaml:"cache"`
	Render Render `yaml:"render"`
}

func (c *Config) Preprocess() error {
	errs := make([]error, 0)

	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = c.Cache.TTL
	}

	errs = append(errs, c.Log.Preprocess())
	errs = append(errs, c.Server.Preprocess())
	errs = append(errs, c.Fetch.Preprocess())
	errs = append(errs, c.Cache.Preprocess())
	errs = append(errs, c.Render.Preprocess())

	return flatten(errs)
}
