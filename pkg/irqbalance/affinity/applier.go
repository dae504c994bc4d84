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

package affinity

import (
	"github.com/pkg/errors"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kubewharf/katalyst-irqbalance/pkg/irqbalance/balancer"
	"github.com/kubewharf/katalyst-irqbalance/pkg/metrics"
	"github.com/kubewharf/katalyst-irqbalance/pkg/util/general"
)

const (
	metricsNameAffinityWrites = "irqbalance_affinity_writes_total"
	metricsTagKeyResult       = "result"
)

// Sink routes an irq to the cores of mask. changed is false when the irq
// already had this mask.
type Sink interface {
	SetAffinity(irq int, mask string) (changed bool, err error)
}

type Result string

const (
	ResultApplied   Result = "applied"
	ResultUnchanged Result = "unchanged"
	ResultFailed    Result = "failed"
)

// Outcome is the result of submitting one placement.
type Outcome struct {
	Placement balancer.Placement
	Mask      string
	Result    Result
	Err       error
}

type Applier struct {
	sink    Sink
	emitter metrics.MetricEmitter
}

func NewApplier(sink Sink, emitter metrics.MetricEmitter) *Applier {
	if emitter == nil {
		emitter = metrics.DummyMetrics{}
	}
	return &Applier{sink: sink, emitter: emitter}
}

// Apply submits every placement independently; a failed write is logged and
// recorded but never stops the remaining ones.
func (a *Applier) Apply(assignment *balancer.Assignment) []Outcome {
	outcomes := make([]Outcome, 0, assignment.Len())
	for _, placement := range assignment.Placements {
		outcome := Outcome{Placement: placement, Mask: placement.Mask()}

		changed, err := a.sink.SetAffinity(placement.Queue.IRQ, outcome.Mask)
		switch {
		case err != nil:
			outcome.Result = ResultFailed
			outcome.Err = errors.Wrapf(general.ErrAffinityWriteFailed, "irq %d mask %s: %v",
				placement.Queue.IRQ, outcome.Mask, err)
			general.Errorf("set affinity of irq %d to %s failed: %v", placement.Queue.IRQ, outcome.Mask, err)
		case changed:
			outcome.Result = ResultApplied
		default:
			outcome.Result = ResultUnchanged
		}

		_ = a.emitter.StoreInt64(metricsNameAffinityWrites, 1, metrics.MetricTypeNameCount,
			metrics.MetricTag{Key: metricsTagKeyResult, Val: string(outcome.Result)})
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Summary counts outcomes by result.
type Summary struct {
	Applied   int
	Unchanged int
	Failed    int

	errs []error
}

func Summarize(outcomes []Outcome) Summary {
	s := Summary{}
	for _, o := range outcomes {
		switch o.Result {
		case ResultApplied:
			s.Applied++
		case ResultUnchanged:
			s.Unchanged++
		case ResultFailed:
			s.Failed++
			s.errs = append(s.errs, o.Err)
		}
	}
	return s
}

// Err aggregates every failed write, nil when all succeeded.
func (s Summary) Err() error {
	return utilerrors.NewAggregate(s.errs)
}
