// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package licenses bundles the licence files for those go modules which
// are reachable from the main entry point.
package licenses

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//go:generate go run github.com/google/go-licenses save ../../.. --save_path ./data/licenses --force

//go:embed data
var data embed.FS

const base = "data/licenses"

// ErrDevelopment is returned by the command when the license files
// were not generated into the binary.
var ErrDevelopment = errors.New("development binaries should not be distributed")

// Command prints the embedded license notifications.
func Command() *cobra.Command {
	return &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "print licenses for redistributed modules",
		Use:   "licenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Print(data, cmd.OutOrStdout())
		},
	}
}

// Print writes one section per module found under data/licenses.
func Print(fsys fs.FS, out io.Writer) error {
	return fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, err error) error {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return ErrDevelopment
		case err != nil:
			return err
		case d.IsDir():
			return nil
		}

		// Trim leading "data/licenses/" and the file name.
		module := path.Dir(p)[len(base)+1:]
		if _, err := fmt.Fprintf(out, "Module %s:\n\n", module); err != nil {
			return errors.WithStack(err)
		}

		f, err := fsys.Open(p)
		if err != nil {
			return errors.Wrap(err, p)
		}
		defer f.Close()
		if _, err := io.Copy(out, f); err != nil {
			return errors.Wrap(err, p)
		}
		_, err = fmt.Fprint(out, "--------\n\n")
		return errors.WithStack(err)
	})
}
