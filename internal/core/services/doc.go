// Package services implements the core application logic for Corpora.
//
// Services implement the driving ports and depend only on domain types
// and the driven ports. Infrastructure (MongoDB, OpenAI, config files)
// is injected by the composition root in the CLI layer.
package services
