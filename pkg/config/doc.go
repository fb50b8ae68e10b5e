// Package config manages the local registry of Instill instances.
//
// The registry is a YAML file, config.yaml, kept in the directory named by
// $INSTILL_SYSTEM_CONFIG_PATH or, when unset, ~/.config/instill:
//
//	hosts:
//	  default:
//	    url: api.instill.tech
//	    secure: true
//	    token: instill_sk_...
//	  local:
//	    url: localhost:8080
//
// Nothing is read at import time. Load the file explicitly and hand the
// result to the client:
//
//	cfg, err := config.Load(config.DefaultDir())
//	if err != nil {
//		return err
//	}
//	c, err := client.New(cfg, client.WithInstance("local"))
//
// A missing file is not an error; it yields an empty registry that can be
// filled with SetInstance.
//
// # Instance Selection
//
// Resolve is used when no alias is requested: the "default" alias wins,
// otherwise a registry with exactly one alias resolves to it, otherwise no
// instance is selected.
//
// # Tokens
//
// SetToken only updates aliases that already exist:
//
//	if err := cfg.SetToken("default", token); errors.Is(err, config.ErrUnknownInstance) {
//		// add the instance first
//	}
//
// Every mutating method (SetToken, SetInstance, RemoveInstance) writes the
// file immediately with 0600 permissions. A Config is safe for concurrent
// use.
//
// # Validation
//
// Load and SetInstance reject empty aliases, instances without a URL and URL
// schemes other than grpc, grpcs, http and https. A grpcs or https scheme
// implies Secure.
package config
