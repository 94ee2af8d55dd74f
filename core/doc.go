// Package core holds the release orchestration contracts shared by both
// platforms: credentials, release stores, the run journal, configuration and
// the error envelope. Platform adapters depend on core; core must not depend
// on them.
package core
