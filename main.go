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

// Command textjson reads newline-delimited JSON files and publishes
// each member of each object as a key,value record.
package main

//go:generate go run github.com/cockroachdb/crlfmt -w .

import (
	"context"
	golog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	joonix "github.com/joonix/log"
	"github.com/mcslender97/textjson/internal/cmd/licenses"
	"github.com/mcslender97/textjson/internal/cmd/preflight"
	"github.com/mcslender97/textjson/internal/cmd/start"
	"github.com/mcslender97/textjson/internal/cmd/version"
	"github.com/mcslender97/textjson/internal/util/flagenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// gracePeriod bounds the time spent finishing in-flight work after a
// signal has been received.
const gracePeriod = 30 * time.Second

func main() {
	ctx := stopper.WithContext(context.Background())
	stopOnSignal(ctx)

	err := rootCommand().ExecuteContext(ctx)

	// Close publishers and wait for background tasks.
	ctx.Stop(gracePeriod)
	if waitErr := ctx.Wait(); err == nil {
		err = waitErr
	}
	if err != nil {
		log.WithError(err).Error("exited")
		log.Exit(1)
	}
	log.Exit(0)
}

func rootCommand() *cobra.Command {
	var configFile, logFormat, logDestination string
	var verbosity int
	root := &cobra.Command{
		Use:           "textjson",
		Short:         "publish the fields of newline-delimited JSON files as key,value records",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := flagenv.Load(configFile)
			if err != nil {
				return err
			}
			if err := flagenv.Apply(v, cmd.Flags()); err != nil {
				return err
			}

			// Hijack anything that uses the standard go logger, like http.
			pw := log.WithField("golog", true).Writer()
			log.DeferExitHandler(func() { _ = pw.Close() })
			// logrus will provide timestamp info.
			golog.SetFlags(0)
			golog.SetOutput(pw)

			switch verbosity {
			case 0:
			// No-op
			case 1:
				log.SetLevel(log.DebugLevel)
			default:
				log.SetLevel(log.TraceLevel)
			}

			switch logFormat {
			case "fluent":
				log.SetFormatter(joonix.NewFormatter())
			case "text":
				log.SetFormatter(&log.TextFormatter{
					FullTimestamp:   true,
					PadLevelText:    true,
					TimestampFormat: time.Stamp,
				})
			default:
				return errors.Errorf("unknown log format: %q", logFormat)
			}

			if logDestination != "" {
				f, err := os.OpenFile(logDestination, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					return errors.Wrap(err, "could not open log output file")
				}
				log.DeferExitHandler(func() { _ = f.Close() })
				log.SetOutput(f)
			}

			return nil
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&configFile, "config", "",
		"a YAML, JSON or TOML file of flag values; flags may also be set with "+flagenv.EnvPrefix+"_<FLAG> variables")
	f.StringVar(&logFormat, "logFormat", "text", "choose log output format [ fluent, text ]")
	f.StringVar(&logDestination, "logDestination", "", "write logs to a file, instead of stderr")
	f.CountVarP(&verbosity, "verbose", "v", "increase logging verbosity to debug; repeat for trace")

	root.AddCommand(
		licenses.Command(),
		preflight.Command(),
		start.Command(),
		version.Command(),
	)
	return root
}

// stopOnSignal stops the context when the process is interrupted.
func stopOnSignal(ctx *stopper.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	ctx.Go(func(ctx *stopper.Context) error {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Infof("received %s; stopping", sig)
			ctx.Stop(gracePeriod)
		case <-ctx.Stopping():
		}
		return nil
	})
}
