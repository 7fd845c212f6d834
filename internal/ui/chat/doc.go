// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat view for peakabot.

The view is thin: every user action becomes a command that calls the
conversation controller on a goroutine, and every result message makes the
model take a fresh controller Snapshot. Nothing in this package mutates
conversation state directly.

# Layout

	+------------------------------------------------------+
	| peakabot  Sales · ada@example.com                     |
	| API key: ************************************** [OK]  |
	+-----------+------------------------------------------+
	| [Load...] | You:                                     |
	| / filter  | Hello                                    |
	|           |                                          |
	| > Thread  | Peaka AI Assistant:                      |
	|   Thread  | Hi!                                      |
	|           +------------------------------------------+
	|           | composer                                 |
	+-----------+------------------------------------------+
	| tab focus  enter send  ctrl+n new  ctrl+l clear key   |

# Files

  - model.go: Model, New, Init, Update and resize handling
  - update.go: key handling per focused pane and result messages
  - commands.go: tea.Cmd wrappers around controller operations
  - sidebar.go: thread rows, cursor and filter
  - view.go: rendering
  - run.go: program setup and credential slot watching
*/
package chat
