// Package main hosts the talkclip CLI.
//
// Commands run exports in-process (export), serve the local HTTP API
// (serve), list the export journal (history), query the video editor
// (probe) and scaffold configuration (config). Configuration resolution and
// logger setup live in commandContext so subcommands stay declarative.
package main
