package readiness_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/elvenok1/servidor-api-rag/pkg/readiness"
)

var _ = DescribeTable("State.String",
	func(s readiness.State, want string) {
		Expect(s.String()).To(Equal(want))
	},
	Entry(nil, readiness.Uninitialized, "uninitialized"),
	Entry(nil, readiness.Verifying, "verifying"),
	Entry(nil, readiness.Ready, "ready"),
	Entry(nil, readiness.Failed, "failed"),
	Entry(nil, readiness.State(9), "unknown"),
)
