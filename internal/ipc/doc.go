// Package ipc carries JSON-RPC over Unix domain sockets.
//
// The client talks to the desktop-side agents talkclip drives: the video
// editor's drop helper and the accessibility bridge of the timeline tool.
// Calls honour context deadlines so an unresponsive agent surfaces as a
// timeout instead of blocking an export. The server side hosts any receiver
// under a service name; tests use it to stand in for those agents.
package ipc
