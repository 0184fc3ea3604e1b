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

package optpasses

import (
    `io`
    `os`

    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
    `github.com/stellaagbim/llvm-opt-passes/internal/passes`
)

type _Options struct {
    layout  *ir.DataLayout
    unroll  passes.UnrollConfig
    emitter passes.RemarkEmitter
    out     io.Writer
}

// Option is the property setter function for the pass options.
type Option func(*_Options)

func newOptions(options ...Option) *_Options {
    opt := &_Options {
        layout  : ir.DefaultDataLayout(),
        unroll  : passes.DefaultUnrollConfig(),
        emitter : passes.LogEmitter{},
        out     : os.Stdout,
    }
    for _, fn := range options {
        fn(opt)
    }
    return opt
}

/* build instantiates the named pass with the selected options */
func (self *_Options) build(name string) passes.Pass {
    switch name {
        case "custom-constant-fold": {
            return passes.NewConstFold(passes.NewEvaluator(self.layout))
        }

        case "custom-redundancy-elim": {
            return passes.NewRedundancyElim()
        }

        case "custom-loop-unroll": {
            p := passes.NewLoopUnroll(self.unroll)
            p.Emitter = self.emitter
            return p
        }

        case "print<custom-redundancy>": {
            return passes.NewRedundancyPrinter(self.out)
        }

        case "custom-optimize": {
            p := passes.NewOptimize()
            p.Fold = passes.NewConstFold(passes.NewEvaluator(self.layout))
            p.Unroll = passes.NewLoopUnroll(self.unroll)
            p.Unroll.Emitter = self.emitter
            return p
        }

        default: {
            return nil
        }
    }
}

// WithDataLayout selects the target data layout consulted by constant
// evaluation. The default is a 64-bit little-endian layout.
func WithDataLayout(dl *ir.DataLayout) Option {
    return func(o *_Options) { o.layout = dl }
}

// WithUnrollConfig overrides the loop unrolling thresholds.
func WithUnrollConfig(cfg passes.UnrollConfig) Option {
    return func(o *_Options) { o.unroll = cfg }
}

// WithNativeUnrollConfig tunes the unrolling thresholds to the host CPU.
func WithNativeUnrollConfig() Option {
    return func(o *_Options) { o.unroll = passes.NativeUnrollConfig() }
}

// WithRemarkEmitter routes optimization remarks to the given emitter
// instead of the logging facade.
func WithRemarkEmitter(em passes.RemarkEmitter) Option {
    return func(o *_Options) { o.emitter = em }
}

// WithOutput redirects printer passes. The default is standard output.
func WithOutput(w io.Writer) Option {
    return func(o *_Options) { o.out = w }
}
