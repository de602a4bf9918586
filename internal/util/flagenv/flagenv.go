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

// Package flagenv supplies values for command-line flags from the
// environment or a configuration file. Flags given on the command line
// always take precedence.
package flagenv

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the upper-cased flag name to form the name
// of the environment variable, e.g. TEXTJSON_OUTPUTTOPIC.
const EnvPrefix = "TEXTJSON"

// Load returns a viper instance which reads environment variables and,
// if configFile is not empty, the named file. The keys in the file are
// the flag names.
func Load(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "could not read configuration file %s", configFile)
		}
	}
	return v, nil
}

// Apply sets every flag that was not changed on the command line from
// the viper instance.
func Apply(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		var setErr error
		if slice, ok := f.Value.(pflag.SliceValue); ok {
			setErr = slice.Replace(v.GetStringSlice(f.Name))
		} else {
			setErr = f.Value.Set(v.GetString(f.Name))
		}
		if setErr != nil {
			err = errors.Wrapf(setErr, "invalid value for %s", f.Name)
			return
		}
		f.Changed = true
	})
	return err
}
