package sort_test

import (
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/exascience/gang/sort"
)

type Person struct {
	Name string
	Age  int
}

func (p Person) String() string {
	return fmt.Sprintf("%s: %d", p.Name, p.Age)
}

func Example() {
	data := []int{5, 3, 3, 1, 4}
	if err := sort.Sort(data, 3); err != nil {
		fmt.Println(err)
	}
	fmt.Println(data)

	// Output:
	// [1 3 3 4 5]
}

func ExampleSortFunc() {
	people := []Person{
		{"Bob", 31},
		{"John", 42},
		{"Michael", 17},
		{"Jenny", 26},
	}

	fmt.Println(people)
	byAge := func(a, b Person) bool { return a.Age < b.Age }
	if err := sort.SortFunc(people, byAge, runtime.GOMAXPROCS(0)); err != nil {
		fmt.Println(err)
	}
	fmt.Println(people)

	// Output:
	// [Bob: 31 John: 42 Michael: 17 Jenny: 26]
	// [Michael: 17 Jenny: 26 Bob: 31 John: 42]
}

func ExampleSort_invalidThreadCount() {
	err := sort.Sort([]int{2, 1}, 0)
	fmt.Println(err)

	// Output:
	// invalid thread count: sort needs at least 1 thread, got 0
}

// Sorting all entries of a matrix by sorting its backing array, which
// gonum stores in row-major order.
func Example_matrix() {
	m := mat.NewDense(3, 3, []float64{
		9, 2, 7,
		4, 5, 6,
		3, 8, 1,
	})
	if err := sort.Sort(m.RawMatrix().Data, 4); err != nil {
		fmt.Println(err)
	}
	fmt.Printf("%v\n", mat.Formatted(m))

	// Output:
	// ⎡1  2  3⎤
	// ⎢4  5  6⎥
	// ⎣7  8  9⎦
}
