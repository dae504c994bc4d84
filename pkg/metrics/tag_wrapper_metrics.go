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

const unitTagKey = "emit_unit"

// MetricTagWrapper decorates an emitter with a unit tag and a set of
// common tags appended to every stored item.
type MetricTagWrapper struct {
	unitTag    MetricTag
	commonTags []MetricTag

	MetricEmitter
}

var _ MetricEmitter = &MetricTagWrapper{}

func newMetricTagWrapper(emitter MetricEmitter) *MetricTagWrapper {
	return &MetricTagWrapper{MetricEmitter: emitter}
}

func (t *MetricTagWrapper) StoreInt64(key string, val int64, emitType MetricTypeName, tags ...MetricTag) error {
	return t.MetricEmitter.StoreInt64(key, val, emitType, t.merge(tags)...)
}

func (t *MetricTagWrapper) StoreFloat64(key string, val float64, emitType MetricTypeName, tags ...MetricTag) error {
	return t.MetricEmitter.StoreFloat64(key, val, emitType, t.merge(tags)...)
}

// WithTags returns a copy with the unit replaced and the common tags
// added or overridden; the receiver is not modified.
func (t *MetricTagWrapper) WithTags(unit string, commonTags ...MetricTag) MetricEmitter {
	c := &MetricTagWrapper{
		MetricEmitter: t.MetricEmitter,
		unitTag:       MetricTag{Key: unitTagKey, Val: unit},
		commonTags:    append([]MetricTag(nil), t.commonTags...),
	}
	c.upsert(commonTags)
	return c
}

func (t *MetricTagWrapper) merge(tags []MetricTag) []MetricTag {
	merged := make([]MetricTag, 0, len(tags)+len(t.commonTags)+1)
	merged = append(merged, tags...)
	merged = append(merged, t.commonTags...)
	return append(merged, t.unitTag)
}

func (t *MetricTagWrapper) upsert(tags []MetricTag) {
	for _, tag := range tags {
		found := false
		for i := range t.commonTags {
			if t.commonTags[i].Key == tag.Key {
				t.commonTags[i].Val = tag.Val
				found = true
				break
			}
		}
		if !found {
			t.commonTags = append(t.commonTags, tag)
		}
	}
}
