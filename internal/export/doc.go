// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a thread transcript to Markdown, JSON or YAML.
//
// # Usage
//
//	exp, err := export.NewExporter("md")
//	if err != nil {
//	    return err
//	}
//	err = exp.Export(export.NewTranscript(thread, project, msgs), os.Stdout)
package export
