package hatch

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r := NewRegistry()

		Convey("When calling an unknown name", func() {
			err := r.Call(AuthName, "")

			Convey("Then it reports it is not installed", func() {
				So(err, ShouldEqual, ErrNotInstalled)
				So(r.Installed(AuthName), ShouldBeFalse)
			})
		})

		Convey("When installing with bad input", func() {
			_, errName := r.Install(" ", func(string) {})
			_, errFn := r.Install(AuthName, nil)

			Convey("Then it is rejected", func() {
				So(errName, ShouldEqual, ErrEmptyName)
				So(errFn, ShouldNotBeNil)
			})
		})

		Convey("When a function is installed", func() {
			var got []string
			uninstall, err := r.Install(AuthName, func(mode string) { got = append(got, mode) })
			So(err, ShouldBeNil)

			So(r.Call(AuthName, "register"), ShouldBeNil)
			So(r.Call(AuthName, ""), ShouldBeNil)

			Convey("Then calls reach it with the mode", func() {
				So(got, ShouldResemble, []string{"register", ""})
			})

			Convey("And it is uninstalled", func() {
				uninstall()
				uninstall()

				Convey("Then the name is free", func() {
					So(r.Installed(AuthName), ShouldBeFalse)
				})
			})

			Convey("And a second owner replaces it", func() {
				var second int
				uninstallSecond, err := r.Install(AuthName, func(string) { second++ })
				So(err, ShouldBeNil)

				Convey("Then the stale uninstall leaves the new owner alone", func() {
					uninstall()
					So(r.Installed(AuthName), ShouldBeTrue)
					So(r.Call(AuthName, "login"), ShouldBeNil)
					So(second, ShouldEqual, 1)

					uninstallSecond()
					So(r.Installed(AuthName), ShouldBeFalse)
				})
			})
		})
	})

	Convey("Given the default registry", t, func() {
		Convey("Then it is shared", func() {
			So(Default(), ShouldEqual, Default())
		})
	})
}
