package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			err := Init()

			Convey("Then Get returns a logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().With(String("student_id", "s-1")).Info(ctx, "evaluated", Float64("credits", 12.5), Bool("ready", false))

			Convey("Then the record carries the fields and the caller", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "evaluated")
				So(rec["student_id"], ShouldEqual, "s-1")
				So(rec["credits"], ShouldEqual, 12.5)
				So(rec["ready"], ShouldEqual, false)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")
			So(SetLevelString("info"), ShouldBeNil)

			Convey("Then only the warning is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})

		Convey("When using a named logger", func() {
			Named("worker").Info(ctx, "started", Int("id", 3))

			Convey("Then fields are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, `"worker":{"id":3`)
			})
		})
	})
}

func TestLoggerFile(t *testing.T) {
	Convey("Given a log file path", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "diploma.log")
		var buf bytes.Buffer
		So(Init(WithFile(path), WithOutput(&buf)), ShouldBeNil)

		Convey("When logging", func() {
			Get().Info(context.Background(), "to file")
			So(Sync(), ShouldBeNil)

			Convey("Then both sinks receive the record", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(strings.Contains(string(data), "to file"), ShouldBeTrue)
				So(buf.String(), ShouldContainSubstring, "to file")
			})
		})

		Reset(func() {
			_ = Init()
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then known names are accepted", func() {
			for _, lvl := range []string{"debug", "INFO", "", "warn", "warning", "error"} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Then unknown names are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})

		Reset(func() {
			_ = SetLevelString("info")
		})
	})
}
