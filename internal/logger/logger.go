// Copyright 2021 The age Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger provides the minimal leveled logger used by the channel
// façade to trace handshake progress and by vault.Open to warn about a
// failed mlockall. It never logs secret material: callers pass role names,
// transcript hashes and error strings, never key bytes.
package logger

import (
	"log"
	"os"
)

type Logger struct {
	ll *log.Logger
}

var Global = &Logger{ll: log.New(os.Stderr, "", 0)}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.ll.Printf("vaultage: "+format, v...)
}

func (l *Logger) Warningf(format string, v ...interface{}) {
	l.ll.Printf("vaultage: warning: "+format, v...)
}
