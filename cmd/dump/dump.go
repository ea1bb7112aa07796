package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmharper/deskew"
	"github.com/bmharper/textorient"
)

// You give this program a directory, and it recursively scans for all the PDF files in that directory.
// It measures the skew of every page of every scanned PDF, straightens it, and outputs them all as
// images into one big output directory.
// You can then flip through those images, and validate visually that every page is straight and upright.

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("Usage: %s <input dir> <output dir>\n", os.Args[0])
		return
	}
	inputDir := os.Args[1]
	outputDir := os.Args[2]

	check(os.MkdirAll(outputDir, 0755))

	pdfFiles := findAllPDFFilesInDirectory(inputDir)
	outputIdx := 1

	orient, err := textorient.NewOrient()
	check(err)
	params := deskew.NewParams()

	for _, pdfFile := range pdfFiles {
		doc, err := deskew.NewDocumentFromFile(pdfFile)
		check(err)
		base := filepath.Base(pdfFile)
		scanned, err := doc.IsScanned()
		check(err)
		if !scanned {
			fmt.Printf("Skipping %v (not scanned)\n", base)
			doc.Close()
			continue
		}
		fmt.Printf("Processing %v\n", base)

		for page := 1; page <= doc.NumPages; page++ {
			raster, err := doc.PageRaster(page)
			if err != nil {
				fmt.Printf("  page %v: %v\n", page, err)
				continue
			}
			res, err := deskew.Analyze(context.Background(), pdfFile, deskew.Some(page), deskew.GrayFromCimg(raster.Image), params)
			check(err)
			fixed, err := deskew.Straighten(raster.Image, res.Angle.OrElse(0), orient)
			check(err)
			img, err := deskew.EncodeRaster(fixed, "image/jpeg", 95)
			check(err)

			outputFile := fmt.Sprintf("%v/%05d_%v_%02d.jpg", outputDir, outputIdx, base, page)
			outputFile = strings.ReplaceAll(outputFile, " ", "_")
			check(os.WriteFile(outputFile, img, 0644))
			fmt.Printf("  page %v: %v (%v)\n", page, res.Angle, res.Method)

			outputIdx++
		}
		doc.Close()
	}
}

func findAllPDFFilesInDirectory(dir string) []string {
	var pdfFiles []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.ToLower(filepath.Ext(path)) == ".pdf" {
			pdfFiles = append(pdfFiles, path)
		}
		return nil
	})
	check(err)
	return pdfFiles
}
