// Package services implements the driving port interfaces.
// Services contain the dispatch logic and orchestrate calls to driven
// ports (adapters and connectors).
package services
