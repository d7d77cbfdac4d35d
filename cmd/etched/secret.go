// Copyright 2026 Blink Labs Software
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

package main

import (
	"io"
	"os"

	"github.com/blinklabs-io/etched/database/sops"
	"github.com/spf13/cobra"
)

func secretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Encrypt or decrypt secret files with SOPS",
	}
	cmd.AddCommand(
		secretSubcommand("encrypt", "Encrypt a secret file", sops.Encrypt),
		secretSubcommand("decrypt", "Decrypt a secret file", sops.Decrypt),
	)
	return cmd
}

func secretSubcommand(
	name string,
	short string,
	fn func([]byte) ([]byte, error),
) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   name + " [FILE]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			result, err := fn(data)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(result)
				return err
			}
			return os.WriteFile(output, result, 0o600)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
