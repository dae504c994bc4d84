/*
Copyright 2022 The Katalyst Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package process

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM;
// a second signal exits the process with code 1.
func SetupSignalHandler() context.Context {
	return setupSignalContext(context.Background(), make(chan os.Signal, 2), os.Exit)
}

func setupSignalContext(parent context.Context, ch chan os.Signal, exit func(int)) context.Context {
	ctx, cancel := context.WithCancel(parent)
	signal.Notify(ch, shutdownSignals...)

	go func() {
		sig := <-ch
		general.Infof("received signal %v, shutting down", sig)
		cancel()

		<-ch
		exit(1)
	}()
	return ctx
}
