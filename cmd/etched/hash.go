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
	"encoding/hex"
	"fmt"
	"io"
	"os"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/spf13/cobra"
)

// contentHash returns the 0x prefixed Blake2b-256 digest of data
func contentHash(data []byte) string {
	hash := lcommon.Blake2b256Hash(data)
	return "0x" + hex.EncodeToString(hash.Bytes())
}

func hashFile(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return contentHash(data), nil
}

func hashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print the content hash of documents for certificate requests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				hash, err := hashFile(path)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintln(cmd.OutOrStdout(), hash)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", hash, path)
			}
			return nil
		},
	}
}
