package database_test

import (
	"context"
	"os"

	"github.com/frahmantamala/filehub/internal/database"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EnsureDatabases", func() {
	var (
		registry *database.Registry
		ctx      context.Context
	)

	BeforeEach(func() {
		registry = newTestRegistry(GinkgoT().TempDir())
		ctx = context.Background()
	})

	It("creates both database files with their schema", func() {
		created, err := database.EnsureDatabases(ctx, registry)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(ConsistOf(database.Users, database.Files))

		for _, name := range database.Names {
			path, err := registry.Path(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeARegularFile())
		}

		db, release, err := registry.Conn(ctx, database.Users)
		Expect(err).NotTo(HaveOccurred())
		defer release()

		var general int64
		Expect(db.Table("departments").Where("name = ?", "General").Count(&general).Error).To(Succeed())
		Expect(general).To(Equal(int64(1)))
		Expect(db.Migrator().HasTable("users")).To(BeTrue())
	})

	It("is idempotent across restarts", func() {
		_, err := database.EnsureDatabases(ctx, registry)
		Expect(err).NotTo(HaveOccurred())

		db, release, err := registry.Conn(ctx, database.Files)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Exec("INSERT INTO files (file_name, file_path, source) VALUES (?, ?, ?)", "a.txt", "downloads/a.txt", "manual").Error).To(Succeed())
		release()

		created, err := database.EnsureDatabases(ctx, registry)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeEmpty())

		db, release, err = registry.Conn(ctx, database.Files)
		Expect(err).NotTo(HaveOccurred())
		defer release()
		var count int64
		Expect(db.Table("files").Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
	})

	It("only creates the missing file", func() {
		_, err := database.EnsureDatabases(ctx, registry)
		Expect(err).NotTo(HaveOccurred())

		path, _ := registry.Path(database.Files)
		Expect(os.Remove(path)).To(Succeed())

		created, err := database.EnsureDatabases(ctx, registry)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(ConsistOf(database.Files))
	})

	It("enforces unique file names at the schema level", func() {
		_, err := database.EnsureDatabases(ctx, registry)
		Expect(err).NotTo(HaveOccurred())

		db, release, err := registry.Conn(ctx, database.Files)
		Expect(err).NotTo(HaveOccurred())
		defer release()

		insert := "INSERT INTO files (file_name, file_path, source) VALUES (?, ?, ?)"
		Expect(db.Exec(insert, "dup.pdf", "downloads/dup.pdf", "discord").Error).To(Succeed())
		Expect(db.Exec(insert, "dup.pdf", "downloads/dup.pdf", "discord").Error).To(HaveOccurred())
	})
})
