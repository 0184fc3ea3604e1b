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
    `gonum.org/v1/gonum/stat`

    `github.com/stellaagbim/llvm-opt-passes/internal/analysis`
    `github.com/stellaagbim/llvm-opt-passes/internal/ir`
    `github.com/stellaagbim/llvm-opt-passes/internal/log`
)

type UnrollStrategy uint8

const (
    NoUnroll UnrollStrategy = iota
    FullUnroll
    PartialUnroll
    RuntimeUnroll
)

var _StrategyNames = [...]string {
    NoUnroll      : "none",
    FullUnroll    : "full",
    PartialUnroll : "partial",
    RuntimeUnroll : "runtime",
}

func (self UnrollStrategy) String() string {
    return _StrategyNames[self]
}

// UnrollConfig carries the strategy thresholds.
type UnrollConfig struct {
    FullMaxCount    uint // largest trip count eligible for full unroll
    FullMaxInsns    uint // body size x trip count cap for full unroll
    PartialFactor   uint // preferred partial / runtime factor
    MaxPartial      uint
    AllowRuntime    bool
    RuntimeMinTC    uint
    AllowCalls      bool
    MaxUnrolledSize uint
}

// DefaultUnrollConfig is the documented baseline.
func DefaultUnrollConfig() UnrollConfig {
    return UnrollConfig {
        FullMaxCount    : 8,
        FullMaxInsns    : 100,
        PartialFactor   : 4,
        MaxPartial      : 8,
        AllowRuntime    : true,
        RuntimeMinTC    : 4,
        AllowCalls      : false,
        MaxUnrolledSize : 400,
    }
}

// NativeUnrollConfig tunes the partial factor to the host vector width.
func NativeUnrollConfig() UnrollConfig {
    cfg := DefaultUnrollConfig()
    cfg.PartialFactor = analysis.NativeTarget().PreferredUnrollFactor()
    return cfg
}

// UnrollCandidate is the analyzer's verdict for one loop.
type UnrollCandidate struct {
    Loop             *analysis.Loop
    TripCount        uint
    TripMultiple     uint
    InstructionCount uint
    IsCanonical      bool
    HasCalls         bool
    HasSideEffects   bool
    Strategy         UnrollStrategy
    Factor           uint
}

// LoopAnalyzer classifies every loop of a function and selects an
// unroll strategy for each.
type LoopAnalyzer struct {
    Config UnrollConfig
    li     *analysis.LoopInfo
    se     *analysis.ScalarEvolution
}

func NewLoopAnalyzer(li *analysis.LoopInfo, se *analysis.ScalarEvolution, cfg UnrollConfig) *LoopAnalyzer {
    return &LoopAnalyzer { Config: cfg, li: li, se: se }
}

/* countInstructions tallies the non-phi, non-terminator body size */
func (self *LoopAnalyzer) countInstructions(lp *analysis.Loop) uint {
    n := uint(0)
    for _, bb := range lp.Blocks() {
        for _, p := range bb.Instructions() {
            if p.Opcode() != ir.OpPhi && !p.IsTerminator() {
                n++
            }
        }
    }
    return n
}

/* classify flags calls and other externally visible effects */
func (self *LoopAnalyzer) classify(lp *analysis.Loop) (hasCalls bool, hasEffects bool) {
    for _, bb := range lp.Blocks() {
        for _, p := range bb.Instructions() {
            if p.Opcode() == ir.OpCall {
                hasCalls = true
                if !p.CalleePure() {
                    hasEffects = true
                }
            }
            if p.Volatile() || p.Atomic() {
                hasEffects = true
            }
        }
    }
    return
}

// AnalyzeLoop builds the candidate record for one loop.
func (self *LoopAnalyzer) AnalyzeLoop(lp *analysis.Loop) UnrollCandidate {
    c := UnrollCandidate {
        Loop             : lp,
        TripCount        : self.se.SmallConstantTripCount(lp),
        TripMultiple     : self.se.SmallConstantTripMultiple(lp),
        InstructionCount : self.countInstructions(lp),
        IsCanonical      : lp.Canonical(),
    }
    c.HasCalls, c.HasSideEffects = self.classify(lp)
    c.Strategy, c.Factor = self.selectStrategy(c)
    return c
}

/* selectStrategy applies the configured thresholds in priority order */
func (self *LoopAnalyzer) selectStrategy(c UnrollCandidate) (UnrollStrategy, uint) {
    cfg := self.Config

    /* calls of any purity and side effects disqualify the loop unless
     * the host explicitly opted in */
    if (c.HasSideEffects || c.HasCalls) && !cfg.AllowCalls {
        return NoUnroll, 1
    }

    /* small constant trip count: flatten the loop entirely */
    if c.TripCount > 0 && c.TripCount <= cfg.FullMaxCount && c.TripCount * c.InstructionCount <= cfg.FullMaxInsns {
        return FullUnroll, c.TripCount
    }

    /* constant but too large: largest factor that divides the count */
    if c.TripCount > 0 {
        top := cfg.PartialFactor
        if top > cfg.MaxPartial {
            top = cfg.MaxPartial
        }
        for f := top; f > 1; f-- {
            if c.TripCount % f == 0 && f * c.InstructionCount <= cfg.MaxUnrolledSize {
                return PartialUnroll, f
            }
        }
        return NoUnroll, 1
    }

    /* unknown count: unrolled main loop guarded at runtime */
    if cfg.AllowRuntime && c.IsCanonical {
        return RuntimeUnroll, cfg.PartialFactor
    }
    return NoUnroll, 1
}

// Candidates analyzes every loop, innermost first.
func (self *LoopAnalyzer) Candidates() []UnrollCandidate {
    var ret []UnrollCandidate
    for _, lp := range self.li.PostorderLoops() {
        ret = append(ret, self.AnalyzeLoop(lp))
    }
    return ret
}

// UnrollStats counts analyzer and unroller outcomes per pass lifetime.
type UnrollStats struct {
    LoopsAnalyzed    uint
    FullyUnrolled    uint
    PartiallyUnrolled uint
    RuntimeUnrolled  uint
    Skipped          uint

    /* analyzed body sizes, summarized at teardown */
    bodySizes []float64
}

// LoopUnroll drives the analyzer over every loop and applies the chosen
// strategy through the unroll primitive.
type LoopUnroll struct {
    Config  UnrollConfig
    Prim    UnrollPrimitive
    Emitter RemarkEmitter
    Stats   UnrollStats
}

func NewLoopUnroll(cfg UnrollConfig) *LoopUnroll {
    return &LoopUnroll {
        Config  : cfg,
        Prim    : NewLoopUnroller(),
        Emitter : LogEmitter{},
    }
}

func (self *LoopUnroll) Name() string {
    return "custom-loop-unroll"
}

func (self *LoopUnroll) remark(fn *ir.Function, c UnrollCandidate, ok bool) {
    kind := "applied"
    msg := "unrolled loop (" + c.Strategy.String() + ")"
    if !ok {
        kind = "missed"
        msg = "failed to unroll loop"
    }
    self.Emitter.Emit(Remark {
        Pass    : self.Name(),
        Kind    : kind,
        Fn      : fn.Name,
        Loc     : c.Loop.Header.Label(),
        Message : msg,
        Factor  : c.Factor,
    })
}

func (self *LoopUnroll) Run(fn *ir.Function, am *AnalysisManager) (bool, PreservedAnalyses) {
    l := log.WithPass(self.Name())
    li := am.LoopInfo()
    if li.Empty() {
        l.Debugf("@%s: no loops", fn.Name)
        return false, PreserveAll()
    }

    /* analyze everything up front, innermost first */
    an := NewLoopAnalyzer(li, am.ScalarEvolution(), self.Config)
    candidates := an.Candidates()
    self.Stats.LoopsAnalyzed += uint(len(candidates))
    for _, c := range candidates {
        self.Stats.bodySizes = append(self.Stats.bodySizes, float64(c.InstructionCount))
    }

    changed := false
    for _, c := range candidates {
        if c.Strategy == NoUnroll {
            continue
        }

        /* a previous unroll may have dissolved this loop, or replaced
         * its structure wholesale; re-derive it from fresh loop info */
        li = am.LoopInfo()
        if !li.IsHeader(c.Loop.Header) {
            continue
        }
        lp := li.LoopFor(c.Loop.Header)
        ind := am.ScalarEvolution().InductionOf(lp)

        res := self.Prim.Unroll(fn, lp, ind, UnrollOptions {
            Factor        : c.Factor,
            TripCount     : c.TripCount,
            TripMultiple  : c.TripMultiple,
            Runtime       : c.Strategy == RuntimeUnroll,
            RuntimeMinTC  : self.Config.RuntimeMinTC,
            PreserveLCSSA : true,
        })

        if res == Unmodified {
            self.Stats.Skipped++
            self.remark(fn, c, false)
            continue
        }

        switch c.Strategy {
            case FullUnroll    : self.Stats.FullyUnrolled++
            case PartialUnroll : self.Stats.PartiallyUnrolled++
            case RuntimeUnroll : self.Stats.RuntimeUnrolled++
        }
        self.remark(fn, c, true)
        changed = true

        /* the CFG changed, recompute everything before the next loop */
        am.Invalidate(PreserveNone())
    }

    if n := len(self.Stats.bodySizes); n > 0 {
        mean, sigma := stat.MeanStdDev(self.Stats.bodySizes, nil)
        l.Debugf("@%s: %d loops, body size mean %.1f stddev %.1f", fn.Name, n, mean, sigma)
    }
    if !changed {
        return false, PreserveAll()
    }

    /* the dominator tree is reported preserved: every structural change
     * above already dropped the cached analyses, so a tree still cached
     * here was built from the final IR */
    return true, PreserveNone().Preserve(AnalysisDomTree)
}
