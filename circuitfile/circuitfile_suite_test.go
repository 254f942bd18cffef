package circuitfile_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCircuitfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Circuitfile Suite")
}
