// Package providers groups the platform integrations. appstore and googleplay
// implement core.ReleaseStore against App Store Connect and Google Play;
// devkit holds the scripted transport their tests run on.
package providers
