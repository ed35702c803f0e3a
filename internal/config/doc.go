// Package config loads the kapi configuration file.
//
// The file is a single JSON or YAML mapping. Every top-level key, reserved or
// not, is kept in document order in Config.Options and handed to the settings
// hook chain. Reserved keys are additionally decoded into typed fields:
//
//	destination  build directory (required)
//	clean        remove destination before building
//	folders      directories copied into the destination
//	rules        declarative file rules
//	collisions   derived file collision policy: overwrite or error
//	logging      {level, format}
//	history      {path} of the build history database
//
// String values may reference ${VAR} environment variables. A .env.local and
// .env next to the configuration file are loaded first, without overriding
// variables already set. Relative reserved paths resolve against the
// directory holding the configuration file.
package config
