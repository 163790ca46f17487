// Copyright 2024 The graphd Authors
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

package metrics

import (
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// StartExecutorSpan opens one span for a plan node executor's Execute
// call, tagged with its kind and output variable per the tracing
// convention. tracer may be opentracing.NoopTracer{} in tests or when no
// tracing backend is configured; the span it returns is then a no-op too.
func StartExecutorSpan(tracer opentracing.Tracer, kind, outputVar string) opentracing.Span {
	span := tracer.StartSpan("exec." + kind)
	span.SetTag("node.kind", kind)
	span.SetTag("node.output_var", outputVar)
	return span
}

// FinishExecutorSpan tags span with the row count published and, on
// failure, marks it as an error span before finishing it.
func FinishExecutorSpan(span opentracing.Span, rows int, err error) {
	if rows >= 0 {
		span.SetTag("node.rows", rows)
	}
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.message", err.Error())
	}
	span.Finish()
}
