package placement_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/notebeat/internal/domain/placement"
)

const eps = 1e-9

// soNear compares each component within eps. mgl64's threshold compare is
// relative and rejects tiny values against an exact zero.
func soNear(got, want mgl64.Vec3) {
	for i := range want {
		So(got[i], ShouldAlmostEqual, want[i], eps)
	}
}

func TestPlace(t *testing.T) {
	Convey("Given the identity pose", t, func() {
		ref := mgl64.Ident4()

		Convey("When placing at (1,2,3)", func() {
			m := placement.Place(ref, mgl64.Vec3{1, 2, 3})

			Convey("Then the origin is (1,2,3)", func() {
				soNear(placement.Origin(m), mgl64.Vec3{1, 2, 3})
			})

			Convey("Then orientation is unchanged", func() {
				So(m.Mat3().ApproxEqualThreshold(mgl64.Ident3(), eps), ShouldBeTrue)
			})
		})
	})

	Convey("Given a viewer turned 90 degrees about Y and standing at (5,0,0)", t, func() {
		ref := mgl64.Translate3D(5, 0, 0).Mul4(mgl64.HomogRotate3DY(math.Pi / 2))

		Convey("When placing one unit forward (-Z)", func() {
			m := placement.Place(ref, mgl64.Vec3{0, 0, -1})

			Convey("Then the origin is the viewer origin plus the rotated offset", func() {
				rotated := ref.Mat3().Mul3x1(mgl64.Vec3{0, 0, -1})
				want := placement.Origin(ref).Add(rotated)
				So(placement.Origin(m).ApproxEqualThreshold(want, eps), ShouldBeTrue)
				soNear(placement.Origin(m), mgl64.Vec3{4, 0, 0})
			})

			Convey("Then the object inherits the viewer orientation", func() {
				So(m.Mat3().ApproxEqualThreshold(ref.Mat3(), eps), ShouldBeTrue)
			})
		})
	})

	Convey("Given no pose", t, func() {
		Convey("Then Resolve uses the offset as an absolute position", func() {
			m := placement.Resolve(nil, mgl64.Vec3{-3, 4, -7})
			So(placement.Origin(m).ApproxEqualThreshold(mgl64.Vec3{-3, 4, -7}, eps), ShouldBeTrue)
			So(m.ApproxEqualThreshold(placement.Absolute(mgl64.Vec3{-3, 4, -7}), eps), ShouldBeTrue)
		})
	})

	Convey("Given a column-major slice", t, func() {
		Convey("Then FromSlice keeps the translation column", func() {
			in := mgl64.Translate3D(1, 2, 3)
			m, ok := placement.FromSlice(in[:])
			So(ok, ShouldBeTrue)
			So(placement.Origin(m), ShouldResemble, mgl64.Vec3{1, 2, 3})
		})

		Convey("Then a short slice is rejected", func() {
			_, ok := placement.FromSlice([]float64{1, 2, 3})
			So(ok, ShouldBeFalse)
		})
	})
}
