// Package config defines the runtime configuration of awxgate.
//
// [LoadFile] reads a YAML file, applies defaults and environment
// overrides, then validates the result with struct tags. [LoadTimeouts]
// reads request and polling timeouts from the environment only.
package config
