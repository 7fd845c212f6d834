// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the peakabot command line.

Running peakabot without a subcommand opens the TUI. The subcommands drive
the same conversation controller for scripting:

	peakabot login [key]                 Validate and store an API key
	peakabot logout                      Erase the stored key
	peakabot whoami                      Show the project of the stored key
	peakabot threads [--filter TEXT]     List conversation threads
	peakabot show <threadID> [--raw]     Print a thread's messages
	peakabot ask [--thread ID] <text>    Send one message and print the reply
	peakabot chat [--thread ID]          Line-editing chat REPL
	peakabot export <threadID>           Write a transcript (md, json, yaml)
	peakabot config path|show|init       Inspect the configuration

Global flags: --config FILE, --base-url URL, -v/--verbose.

Commands return errors to cobra; Execute reports them and main exits 1.
*/
package cli
