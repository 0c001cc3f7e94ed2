package sitelayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
	"github.com/siteforge/layout-optimizer/pkg/roadnet"
)

func TestRoadParams(t *testing.T) {
	params := RoadParams(v1alpha1.RoadSpec{
		MinAnisotropy:       ptr.To(0.2),
		StepSize:            ptr.To(2.5),
		MaxSteps:            ptr.To(50),
		TracerMinAnisotropy: ptr.To(0.3),
	})
	assert.Equal(t, 0.2, params.MinAnisotropy)
	assert.Equal(t, 2.5, params.Tracer.Step)
	assert.Equal(t, 50, params.Tracer.MaxSteps)
	assert.Equal(t, 0.3, params.Tracer.MinAnisotropy)

	def := roadnet.DefaultParams()
	assert.Equal(t, def, RoadParams(v1alpha1.RoadSpec{}))
}
