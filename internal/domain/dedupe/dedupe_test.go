package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/okian/notebeat/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper[int]()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
			_, ok := d.Seen(ctx, "tap-1")
			So(ok, ShouldBeFalse)
		})

		Convey("When a result is recorded", func() {
			d.Record(ctx, "tap-1", 25)

			Convey("Then it is returned for the same id", func() {
				v, ok := d.Seen(ctx, "tap-1")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 25)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then recording again keeps the first result", func() {
				d.Record(ctx, "tap-1", 50)
				v, _ := d.Seen(ctx, "tap-1")
				So(v, ShouldEqual, 25)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then Reset forgets it", func() {
				d.Reset(ctx)
				_, ok := d.Seen(ctx, "tap-1")
				So(ok, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper[string](dedupe.WithMaxSize(3))

		Convey("When more ids than the bound are recorded", func() {
			for i := 1; i <= 5; i++ {
				d.Record(ctx, fmt.Sprintf("tap-%d", i), fmt.Sprint(i))
			}

			Convey("Then the oldest are evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				for i, want := range []bool{false, false, true, true, true} {
					_, ok := d.Seen(ctx, fmt.Sprintf("tap-%d", i+1))
					So(ok, ShouldEqual, want)
				}
			})

			Convey("Then the ring keeps working after Reset", func() {
				d.Reset(ctx)
				for i := 0; i < 7; i++ {
					d.Record(ctx, fmt.Sprintf("again-%d", i), "x")
				}
				So(d.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given concurrent writers", t, func() {
		d := dedupe.NewInMemoryDeduper[int](dedupe.WithMaxSize(10000))
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 500; i++ {
					d.Record(ctx, fmt.Sprintf("%d-%d", w, i), i)
					d.Seen(ctx, fmt.Sprintf("%d-%d", w, i))
				}
			}(w)
		}
		wg.Wait()

		Convey("Then every id is recorded exactly once", func() {
			So(d.Size(), ShouldEqual, 4000)
		})
	})
}
