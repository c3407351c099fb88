package asset_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/notebeat/internal/adapters/asset"
	"github.com/okian/notebeat/internal/adapters/scene"
)

const noteDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_visual_scenes>
    <visual_scene id="Scene">
      <node id="root" name="root">
        <node id="note" name="baseNode">
          <matrix>1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1</matrix>
          <instance_geometry url="#note-mesh"/>
        </node>
      </node>
    </visual_scene>
  </library_visual_scenes>
</COLLADA>`

func TestParse(t *testing.T) {
	Convey("Given a note model with geometry under a nested base node", t, func() {
		m, err := asset.Parse(strings.NewReader(noteDAE))

		Convey("Then the model is found with a material slot", func() {
			So(err, ShouldBeNil)
			So(m.Shape, ShouldEqual, scene.ShapeModel)
			So(m.HasMaterial, ShouldBeTrue)
			So(m.Geometry, ShouldEqual, "#note-mesh")
			So(m.Scale, ShouldEqual, asset.NoteScale)
			So(m.Degraded(), ShouldBeFalse)
		})
	})

	Convey("Given a base node without geometry", t, func() {
		doc := strings.Replace(noteDAE, `<instance_geometry url="#note-mesh"/>`, "", 1)
		m, err := asset.Parse(strings.NewReader(doc))

		Convey("Then notes have nothing to color", func() {
			So(err, ShouldBeNil)
			So(m.HasMaterial, ShouldBeFalse)
		})
	})

	Convey("Given a model without a base node", t, func() {
		doc := strings.Replace(noteDAE, `name="baseNode"`, `name="other"`, 1)
		_, err := asset.Parse(strings.NewReader(doc))

		Convey("Then parsing fails", func() {
			So(errors.Is(err, asset.ErrNodeNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a document that is not COLLADA", t, func() {
		_, err := asset.Parse(strings.NewReader("<html></html>"))

		Convey("Then it is invalid", func() {
			So(errors.Is(err, asset.ErrInvalidModel), ShouldBeTrue)
		})
	})
}

func TestLoadModel(t *testing.T) {
	Convey("Given a model directory", t, func() {
		dir := t.TempDir()

		Convey("When the model file is missing", func() {
			m, err := asset.LoadModel(filepath.Join(dir, "music_note.dae"))

			Convey("Then the sphere fallback is used", func() {
				So(err, ShouldBeNil)
				So(m.Degraded(), ShouldBeTrue)
				So(m.Radius, ShouldEqual, asset.SphereRadius)
				So(m.Scale, ShouldEqual, 0.1)
				So(m.HasMaterial, ShouldBeTrue)
			})
		})

		Convey("When no path is configured", func() {
			m, err := asset.LoadModel("")
			So(err, ShouldBeNil)
			So(m.Shape, ShouldEqual, scene.ShapeSphere)
		})

		Convey("When the model file exists", func() {
			p := filepath.Join(dir, "music_note.dae")
			So(os.WriteFile(p, []byte(noteDAE), 0o600), ShouldBeNil)
			m, err := asset.LoadModel(p)

			Convey("Then it is loaded", func() {
				So(err, ShouldBeNil)
				So(m.Path, ShouldEqual, p)
				So(m.Shape, ShouldEqual, scene.ShapeModel)
			})
		})

		Convey("When the model file exists but is broken", func() {
			p := filepath.Join(dir, "music_note.dae")
			So(os.WriteFile(p, []byte("<COLLADA><library_visual_scenes/></COLLADA>"), 0o600), ShouldBeNil)
			_, err := asset.LoadModel(p)

			Convey("Then loading is fatal", func() {
				So(errors.Is(err, asset.ErrNodeNotFound), ShouldBeTrue)
			})
		})
	})
}
