// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// Each message reports the end of one controller call. The model never reads
// state from them; it takes a fresh Snapshot instead.

// keyValidatedMsg reports the outcome of EnterKey.
type keyValidatedMsg struct {
	key string
	ok  bool
}

// restoredMsg reports the outcome of restoring the stored key at startup.
type restoredMsg struct {
	ok bool
}

// primaryDoneMsg reports the outcome of the sidebar button.
type primaryDoneMsg struct {
	err error
}

// threadSelectedMsg reports that a thread's history finished loading.
type threadSelectedMsg struct {
	threadID string
	err      error
}

// replyMsg reports the end of a send.
type replyMsg struct {
	err error
}

// credentialsClearedMsg reports the outcome of ClearCredentials.
type credentialsClearedMsg struct {
	err error
}

// syncedMsg reports the outcome of reconciling with the credential slot.
type syncedMsg struct {
	changed bool
	err     error
}

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// SlotChangedMsg tells the model that another process changed the
// credential slot. Run sends it from the slot watcher.
type SlotChangedMsg struct{}
