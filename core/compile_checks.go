package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ReleaseStore    = (*JournaledStore)(nil)
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ RawConfigLoader = YAMLConfigLoader{}
	_ OptionsResolver = GoOptionsResolver{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
