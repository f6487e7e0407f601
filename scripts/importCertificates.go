package main

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"lms/config"
	"lms/database"
	courseModels "lms/models/course"
	quizModels "lms/models/quiz"
	"lms/services"

	"gorm.io/gorm"
)

// Imports legacy paper certificates from certificates.csv. Expected columns:
// full_name, dni, course_code, score, approved_at, expires_at (dates as
// YYYY-MM-DD).
func main() {
	config.LoadConfig()
	database.ConnectDb()

	file, err := os.Open("certificates.csv")
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	header := records[0]
	log.Printf("CSV Headers: %v", header)
	log.Printf("Total rows to import: %d", len(records)-1)

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"full_name", "dni", "course_code", "score", "approved_at", "expires_at"} {
		if _, ok := headerIndex[required]; !ok {
			log.Fatalf("CSV is missing the %q column", required)
		}
	}

	db := database.Database.Db

	courseByCode := make(map[string]courseModels.Course)
	var courses []courseModels.Course
	if err := db.Where("is_deleted = ?", false).Find(&courses).Error; err != nil {
		log.Fatalf("Failed to load courses: %v", err)
	}
	for _, course := range courses {
		courseByCode[course.Code] = course
	}

	inserted := 0
	skipped := 0
	for rowNum, row := range records[1:] {
		fullName := strings.TrimSpace(row[headerIndex["full_name"]])
		dni := strings.TrimSpace(row[headerIndex["dni"]])
		courseCode := strings.ToUpper(strings.TrimSpace(row[headerIndex["course_code"]]))

		course, ok := courseByCode[courseCode]
		if !ok {
			log.Printf("Row %d: unknown course code %q, skipping", rowNum+2, courseCode)
			skipped++
			continue
		}

		score, err := strconv.Atoi(strings.TrimSpace(row[headerIndex["score"]]))
		if err != nil || score < 0 || score > 20 {
			log.Printf("Row %d: invalid score %q, skipping", rowNum+2, row[headerIndex["score"]])
			skipped++
			continue
		}

		approvedAt, err := time.Parse("2006-01-02", strings.TrimSpace(row[headerIndex["approved_at"]]))
		if err != nil {
			log.Printf("Row %d: invalid approved_at, skipping", rowNum+2)
			skipped++
			continue
		}
		expiresAt, err := time.Parse("2006-01-02", strings.TrimSpace(row[headerIndex["expires_at"]]))
		if err != nil {
			log.Printf("Row %d: invalid expires_at, skipping", rowNum+2)
			skipped++
			continue
		}

		var existing quizModels.ManualCertificate
		if err := db.Where("dni = ? AND course_id = ?", dni, course.ID).First(&existing).Error; err == nil {
			log.Printf("Row %d: certificate for DNI %s in %s already exists, skipping", rowNum+2, dni, courseCode)
			skipped++
			continue
		}

		_, err = services.IssueWithRetry(db, course.ID, config.AppConfig.CertCodeStart,
			func(tx *gorm.DB, code string) error {
				expires := expiresAt
				manual := quizModels.ManualCertificate{
					FullName:        fullName,
					DNI:             dni,
					CourseID:        course.ID,
					Score:           score,
					ApprovedAt:      approvedAt,
					ExpiresAt:       &expires,
					Active:          true,
					CertificateCode: services.FullCertificateCode(course.Code, code),
				}
				return tx.Create(&manual).Error
			})
		if err != nil {
			log.Printf("Row %d: failed to import: %v", rowNum+2, err)
			skipped++
			continue
		}
		inserted++
	}

	log.Printf("Import finished: %d inserted, %d skipped", inserted, skipped)
}
