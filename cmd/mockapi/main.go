// cmd/mockapi/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"libraterm/internal/catalog"
	"libraterm/internal/mockapi"
)

func main() {
	srv := mockapi.New()
	seed(srv)

	port := getEnv("PORT", "8090")
	log.Printf("Mock library API listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, srv))
}

func seed(srv *mockapi.Server) {
	accounts := []struct{ name, email, role, password string }{
		{"Amina Cherif", "amina@univ.edu", "student", "student123"},
		{"Dr. Karim Haddad", "karim@univ.edu", "faculty", "faculty123"},
		{"Leila Mansouri", "leila@univ.edu", "librarian", "librarian123"},
	}
	for _, a := range accounts {
		if _, err := srv.SeedAccount(a.name, a.email, a.role, a.password); err != nil {
			log.Fatalf("seed account %s: %v", a.email, err)
		}
	}

	pubs := []catalog.Publication{
		{Title: "Introduction to Algorithms", Author: "Cormen, Leiserson, Rivest, Stein", ISBN: "9780262046305", PublicationYear: 2022, Publisher: "MIT Press", Department: "Computer Science", Type: catalog.TypeBook, TotalCopies: 5, AvailableCopies: 5, ShelfLocation: "CS-101"},
		{Title: "The Design of Everyday Things", Author: "Don Norman", ISBN: "9780465050659", PublicationYear: 2013, Publisher: "Basic Books", Department: "Design", Type: catalog.TypeBook, TotalCopies: 3, AvailableCopies: 3, ShelfLocation: "DS-014"},
		{Title: "Distributed Consensus in Unreliable Networks", Author: "N. Benali", PublicationYear: 2024, Department: "Computer Science", Type: catalog.TypeThesis, TotalCopies: 1, AvailableCopies: 1, ShelfLocation: "TH-203"},
	}
	for _, p := range pubs {
		srv.SeedPublication(p)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
