package freitool

import (
	"github.com/andersonfds/freitool/auth"
	"github.com/andersonfds/freitool/core"
	"github.com/andersonfds/freitool/providers/appstore"
	"github.com/andersonfds/freitool/providers/googleplay"
)

// AppStoreStore builds the iOS release store from cfg.AppStore. The provider
// self-signs its credentials, so adapter only carries API calls.
func AppStoreStore(cfg core.Config, adapter core.TransportAdapter, logger core.Logger) (*appstore.Store, error) {
	if err := cfg.ValidateAppStore(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, core.InternalError("freitool: transport adapter is required")
	}
	provider := auth.NewAppStoreKeyProvider(auth.AppStoreKeyProviderConfig{
		KeyPath:  cfg.AppStore.KeyPath,
		IssuerID: cfg.AppStore.IssuerID,
	})
	client := appstore.NewClient(adapter, cfg.AppStore.BaseURL)
	return appstore.NewStore(provider, client, appstore.StoreConfig{
		AppID:    cfg.AppStore.AppID,
		Platform: cfg.AppStore.Platform,
		Logger:   logger,
	}), nil
}

// GooglePlayStore builds the Android release store from cfg.GooglePlay. The
// same client signs in and edits tracks.
func GooglePlayStore(cfg core.Config, adapter core.TransportAdapter, logger core.Logger) (*googleplay.Store, error) {
	if err := cfg.ValidateGooglePlay(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, core.InternalError("freitool: transport adapter is required")
	}
	client := googleplay.NewClient(adapter, googleplay.ClientConfig{
		BaseURL:  cfg.GooglePlay.BaseURL,
		TokenURL: cfg.GooglePlay.TokenURL,
	})
	provider := auth.NewServiceAccountProvider(auth.ServiceAccountProviderConfig{
		KeyPath:  cfg.GooglePlay.KeyPath,
		TokenURL: client.TokenURL(),
	}, client)
	return googleplay.NewStore(provider, client, googleplay.StoreConfig{
		PackageName: cfg.GooglePlay.PackageName,
		Track:       cfg.GooglePlay.Track,
		Logger:      logger,
	}), nil
}

var _ auth.AssertionExchanger = (*googleplay.Client)(nil)
