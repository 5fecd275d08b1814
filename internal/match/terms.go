package match

import (
	"os"

	"gopkg.in/yaml.v3"
)

// termsConfig is the YAML config structure
// terms:
//   - cryptocurrency
//   - crypto
type termsConfig struct {
	Terms []string `yaml:"terms"`
}

// LoadQueryTerms reads the generic query terms from a YAML file. Returns the
// defaults when the file does not exist.
func LoadQueryTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGenericTerms, nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg termsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Terms) == 0 {
		return DefaultGenericTerms, nil
	}
	return cfg.Terms, nil
}
