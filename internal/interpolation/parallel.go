package interpolation

import "sync"

// forEachRow calls fn for every row index in [0, rows) using up to workers
// goroutines. Rows are striped across workers; fn must only write state owned
// by its row. Returns after every call has finished.
func forEachRow(rows, workers int, fn func(row int)) {
	if workers < 1 {
		workers = 1
	}
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		for i := 0; i < rows; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < rows; i += workers {
				fn(i)
			}
		}(w)
	}
	wg.Wait()
}
