/*
 * Copyright 2024 the llvm-opt-passes Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log is the single choke point for all pass tracing. Every
// transformation logs through here with a level filter; none of them
// branch on a debug flag of their own.
package log

import (
    `os`

    `github.com/sirupsen/logrus`
)

var logger = logrus.New()

func init() {
    logger.SetLevel(logrus.WarnLevel)
    logger.SetFormatter(&logrus.TextFormatter {
        DisableTimestamp: true,
    })

    /* LLVM_OPT_DEBUG=1 turns on debug tracing, =trace goes further */
    switch os.Getenv("LLVM_OPT_DEBUG") {
        case ""      : break
        case "trace" : logger.SetLevel(logrus.TraceLevel)
        default      : logger.SetLevel(logrus.DebugLevel)
    }
}

// SetLevel adjusts the global filter. Hosts embedding the passes call
// this once at startup.
func SetLevel(level logrus.Level) {
    logger.SetLevel(level)
}

// WithPass returns an entry tagged with the pass name, the way every
// transformation is expected to log.
func WithPass(name string) *logrus.Entry {
    return logger.WithField("pass", name)
}

func Debugf(format string, args ...interface{}) {
    logger.Debugf(format, args...)
}

func Tracef(format string, args ...interface{}) {
    logger.Tracef(format, args...)
}

func Warnf(format string, args ...interface{}) {
    logger.Warnf(format, args...)
}
