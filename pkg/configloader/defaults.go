package configloader

import (
	"fmt"
	"sort"
	"sync"
)

// Дефолты регистрируются секциями из init() пакета конфига сервиса.
var (
	defaultsMu sync.RWMutex
	defaults   = make(map[string]interface{})
)

// RegisterDefaults регистрирует дефолты секции: ключ "<section>.<key>".
// Пустая section — ключи верхнего уровня. Повторная регистрация
// ключа — ошибка программиста, паникуем.
func RegisterDefaults(section string, kv map[string]interface{}) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	for k, v := range kv {
		key := k
		if section != "" {
			key = section + "." + k
		}
		if _, dup := defaults[key]; dup {
			panic(fmt.Sprintf("configloader: default %q registered twice", key))
		}
		defaults[key] = v
	}
}

// DefaultKeys — отсортированный список зарегистрированных ключей.
func DefaultKeys() []string {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getDefaults() map[string]interface{} {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	cp := make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		cp[k] = v
	}
	return cp
}
