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

package passes

import (
    `github.com/stellaagbim/llvm-opt-passes/internal/log`
)

// Remark is one optimization decision worth reporting: a transformation
// that happened, or one that was considered and missed.
type Remark struct {
    Pass    string
    Kind    string // "applied" or "missed"
    Fn      string
    Loc     string // loop location: header block label
    Message string
    Factor  uint
}

// RemarkEmitter receives remarks as the passes produce them.
type RemarkEmitter interface {
    Emit(r Remark)
}

// LogEmitter forwards remarks to the logging facade at debug level.
type LogEmitter struct{}

func (LogEmitter) Emit(r Remark) {
    log.WithPass(r.Pass).Debugf("remark(%s) @%s %s: %s (factor %d)", r.Kind, r.Fn, r.Loc, r.Message, r.Factor)
}

// CollectEmitter buffers remarks, mostly for tests and host inspection.
type CollectEmitter struct {
    Remarks []Remark
}

func (self *CollectEmitter) Emit(r Remark) {
    self.Remarks = append(self.Remarks, r)
}
