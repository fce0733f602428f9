package plugins

import (
	"toolcore/internal/core"
	"toolcore/plugins/ecommerce"
	"toolcore/plugins/finance"
	"toolcore/plugins/fundfinance"
	"toolcore/plugins/hrpayroll"
	"toolcore/plugins/incident"
)

// Builtin returns every domain plugin shipped with toolcore, sorted by name.
func Builtin() []core.Plugin {
	return []core.Plugin{
		ecommerce.New(),
		finance.New(),
		fundfinance.New(),
		hrpayroll.New(),
		incident.New(),
	}
}

// Install registers every builtin plugin with svc.
func Install(svc *core.Service) ([]core.PluginMetadata, error) {
	metas := make([]core.PluginMetadata, 0, len(Builtin()))
	for _, p := range Builtin() {
		meta, err := svc.InstallPlugin(p)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, nil
}
