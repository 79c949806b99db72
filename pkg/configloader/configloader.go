package configloader

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load загружает конфиг в cfgPtr: defaults → ENV → YAML → overrides.
// envPrefix — префикс ENV переменных, например: "CART_PRODUCER".
// overrides — значения, пришедшие из командной строки; они сильнее файла.
func Load(path, envPrefix string, overrides map[string]interface{}, cfgPtr interface{}) error {
	v := viper.New()

	// Шаг 1: зарегистрированные дефолты
	for key, val := range getDefaults() {
		v.SetDefault(key, val)
	}

	// Шаг 2: environment override
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Шаг 3: файл (если указан)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("configloader: read config %q: %w", path, err)
		}
	}

	// Шаг 4: CLI
	for key, val := range overrides {
		v.Set(key, val)
	}

	// Шаг 5: decode
	if err := decode(v.AllSettings(), cfgPtr); err != nil {
		return fmt.Errorf("configloader: decode failed: %w", err)
	}

	// Шаг 6: validate if possible
	if vc, ok := cfgPtr.(interface{ Validate() error }); ok {
		if err := vc.Validate(); err != nil {
			return fmt.Errorf("configloader: validation failed: %w", err)
		}
	}

	return nil
}
