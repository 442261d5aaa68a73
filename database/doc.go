// Package database provides connection management, migrations, SQL seed
// initialization, configuration types, logging, health checks, and driver
// error classification built on top of Bun.
package database
