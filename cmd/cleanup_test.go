package cmd

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

var _ = Describe("cleanup", func() {
	It("removes the databases and empties the given directories", func() {
		fsys := afero.NewMemMapFs()
		Expect(afero.WriteFile(fsys, "user_data.db", []byte("x"), 0o644)).To(Succeed())
		Expect(afero.WriteFile(fsys, "files_data.db-wal", []byte("x"), 0o644)).To(Succeed())
		Expect(afero.WriteFile(fsys, "Logs/app_activity.txt", []byte("x"), 0o644)).To(Succeed())
		Expect(afero.WriteFile(fsys, "Logs/old/file_operations.txt", []byte("x"), 0o644)).To(Succeed())
		Expect(afero.WriteFile(fsys, "downloads/report.pdf", []byte("x"), 0o644)).To(Succeed())

		var out bytes.Buffer
		Expect(cleanup(fsys, &out, []string{"user_data.db", "files_data.db"}, []string{"Logs"})).To(Succeed())

		for _, gone := range []string{"user_data.db", "files_data.db-wal", "Logs/app_activity.txt", "Logs/old"} {
			exists, err := afero.Exists(fsys, gone)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse(), gone)
		}
		dirExists, _ := afero.DirExists(fsys, "Logs")
		Expect(dirExists).To(BeTrue())
		kept, _ := afero.Exists(fsys, "downloads/report.pdf")
		Expect(kept).To(BeTrue())
		Expect(out.String()).To(HaveSuffix("Cleanup complete!\n"))
	})

	It("skips paths that do not exist", func() {
		var out bytes.Buffer
		Expect(cleanup(afero.NewMemMapFs(), &out, []string{"missing.db"}, []string{"nowhere"})).To(Succeed())
	})
})

var _ = Describe("migrationTargets", func() {
	It("selects every database by default", func() {
		names, err := migrationTargets("")
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(HaveLen(2))
	})

	It("rejects unknown names", func() {
		_, err := migrationTargets("archive")
		Expect(err).To(HaveOccurred())
	})
})
