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

package metrics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/apimachinery/pkg/util/sets"
)

const textfileHelp = "katalyst irqbalance metric %s"

type vecEntry struct {
	labels    []string
	collector prometheus.Collector
}

// TextfileEmitter keeps metrics in a private prometheus registry and writes
// them in text exposition format on Flush, for node-exporter's textfile
// collector.
type TextfileEmitter struct {
	mutex    sync.Mutex
	path     string
	registry *prometheus.Registry
	vecs     map[string]*vecEntry
}

var _ MetricEmitter = &TextfileEmitter{}

func NewTextfileEmitter(path string) *TextfileEmitter {
	return &TextfileEmitter{
		path:     path,
		registry: prometheus.NewRegistry(),
		vecs:     make(map[string]*vecEntry),
	}
}

func (e *TextfileEmitter) StoreInt64(key string, val int64, emitType MetricTypeName, tags ...MetricTag) error {
	return e.StoreFloat64(key, float64(val), emitType, tags...)
}

func (e *TextfileEmitter) StoreFloat64(key string, val float64, emitType MetricTypeName, tags ...MetricTag) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	names, values := splitTags(tags)
	entry, err := e.getOrRegister(key, emitType, names)
	if err != nil {
		return err
	}

	switch vec := entry.collector.(type) {
	case *prometheus.CounterVec:
		if val < 0 {
			return fmt.Errorf("counter %s cannot decrease by %v", key, val)
		}
		counter, err := vec.GetMetricWithLabelValues(values...)
		if err != nil {
			return err
		}
		counter.Add(val)
	case *prometheus.GaugeVec:
		gauge, err := vec.GetMetricWithLabelValues(values...)
		if err != nil {
			return err
		}
		gauge.Set(val)
	}
	return nil
}

func (e *TextfileEmitter) WithTags(unit string, commonTags ...MetricTag) MetricEmitter {
	return newMetricTagWrapper(e).WithTags(unit, commonTags...)
}

// Flush writes the registry to the configured path atomically.
func (e *TextfileEmitter) Flush() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(e.path, e.registry)
}

func (e *TextfileEmitter) getOrRegister(key string, emitType MetricTypeName, labels []string) (*vecEntry, error) {
	if entry, ok := e.vecs[key]; ok {
		if !sets.NewString(entry.labels...).Equal(sets.NewString(labels...)) {
			return nil, fmt.Errorf("metric %s stored with labels %v, previously %v", key, labels, entry.labels)
		}
		return entry, nil
	}

	var collector prometheus.Collector
	switch emitType {
	case MetricTypeNameCount:
		collector = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: key,
			Help: fmt.Sprintf(textfileHelp, key),
		}, labels)
	case MetricTypeNameRaw:
		collector = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: key,
			Help: fmt.Sprintf(textfileHelp, key),
		}, labels)
	default:
		return nil, fmt.Errorf("unsupported metric type %q", emitType)
	}

	if err := e.registry.Register(collector); err != nil {
		return nil, fmt.Errorf("register metric %s: %v", key, err)
	}

	entry := &vecEntry{labels: labels, collector: collector}
	e.vecs[key] = entry
	return entry, nil
}

// splitTags sorts tags by key and keeps the last value of duplicated keys.
func splitTags(tags []MetricTag) ([]string, []string) {
	byKey := make(map[string]string, len(tags))
	for _, tag := range tags {
		byKey[tag.Key] = tag.Val
	}

	names := make([]string, 0, len(byKey))
	for k := range byKey {
		names = append(names, k)
	}
	sort.Strings(names)

	values := make([]string, 0, len(names))
	for _, k := range names {
		values = append(values, byKey[k])
	}
	return names, values
}
