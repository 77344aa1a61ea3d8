// Package tracking picks which of the sensor's skeletons drives the painting.
package tracking

import (
	"github.com/samber/lo"

	"go.viam.com/bodypaint/kinect"
)

// Select returns the tracked skeleton closest to the sensor, ties going to the earliest in the list.
// Lost skeletons are ignored. When one is selected the chooser, if any, is told to track it in full.
func Select(skeletons []kinect.Skeleton, chooser kinect.SkeletonChooser) (kinect.Skeleton, bool) {
	candidates := lo.Filter(skeletons, func(s kinect.Skeleton, _ int) bool {
		return s.State != kinect.NotTracked
	})
	if len(candidates) == 0 {
		return kinect.Skeleton{}, false
	}
	closest := lo.MinBy(candidates, func(a, b kinect.Skeleton) bool {
		return a.Position.Norm() < b.Position.Norm()
	})
	if chooser != nil {
		chooser.ChooseTrackedSkeleton(closest.TrackingID)
	}
	return closest, true
}
