// Package config loads, normalizes, and validates talkclip configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TALKCLIP_SAVE_DIR and TALKCLIP_HOST_COMMAND. The Config type centralizes
// every knob the export pipeline, CLI and API need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical encodings and rounding names, and clear
// validation errors.
package config
